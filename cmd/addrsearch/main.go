package main

var Version = "development"

func main() {
	Execute(Version)
}
