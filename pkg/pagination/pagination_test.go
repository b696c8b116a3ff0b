package pagination

import "testing"

func TestNormalizeClampsInputs(t *testing.T) {
	cases := []struct {
		name     string
		in       Params
		wantPage int
		wantSize int
	}{
		{"zero values", Params{}, 1, DefaultPageSize},
		{"negative page", Params{Page: -3, PageSize: 10}, 1, 10},
		{"oversized page size", Params{Page: 2, PageSize: 5000}, 2, MaxPageSize},
		{"already valid", Params{Page: 4, PageSize: 25}, 4, 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Page != tc.wantPage || got.PageSize != tc.wantSize {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestOffsetIsOneIndexed(t *testing.T) {
	p := Params{Page: 3, PageSize: 20}
	if p.Offset() != 40 {
		t.Fatalf("unexpected offset %d", p.Offset())
	}
	if (Params{Page: 1, PageSize: 20}).Offset() != 0 {
		t.Fatal("first page must start at offset 0")
	}
}

func TestNewPageNeverReturnsNilItems(t *testing.T) {
	page := NewPage[string](Params{Page: 9, PageSize: 10}, nil, 0)
	if page.Items == nil {
		t.Fatal("items must be an empty slice")
	}
	if page.Page != 9 {
		t.Fatalf("unexpected page %d", page.Page)
	}
}
