package validator

import "testing"

type request struct {
	Kind    string `validate:"resultkind"`
	Country string `validate:"iso3166_1_alpha2"`
	Text    string `validate:"notblank"`
}

func TestDomainRules(t *testing.T) {
	val := New()

	tests := []struct {
		name    string
		req     request
		wantErr bool
	}{
		{name: "valid", req: request{Kind: "address", Country: "US", Text: "1 Main"}},
		{name: "unknown kind", req: request{Kind: "street", Country: "US", Text: "1 Main"}, wantErr: true},
		{name: "bad country", req: request{Kind: "address", Country: "USA", Text: "1 Main"}, wantErr: true},
		{name: "blank text", req: request{Kind: "address", Country: "US", Text: "   "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := val.Struct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
