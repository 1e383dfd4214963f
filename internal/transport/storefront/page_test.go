package storefront

import (
	"errors"
	"os"
	"testing"

	"github.com/Autilos/perfun-bot-new/internal/domain"
	"github.com/Autilos/perfun-bot-new/internal/domain/product"
)

const productURL = "https://perfun.pl/produkt/afnan-9pm/"

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestParsePage(t *testing.T) {
	raw, err := parsePage(readFixture(t, "product.html"), productURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw.ExternalID != "48213" {
		t.Errorf("ExternalID = %q", raw.ExternalID)
	}
	if raw.Name != "Afnan 9PM Eau de Parfum 100ml" {
		t.Errorf("Name = %q", raw.Name)
	}
	if raw.ImageURL != "https://perfun.pl/wp-content/uploads/afnan-9pm.jpg" {
		t.Errorf("ImageURL = %q", raw.ImageURL)
	}
	if raw.ProductURL != productURL {
		t.Errorf("ProductURL = %q", raw.ProductURL)
	}
	if raw.Price.String() != "149.99" {
		t.Errorf("Price = %s, expected the sale price 149.99", raw.Price)
	}
	if !raw.InStock {
		t.Error("expected in stock")
	}

	wantDesc := "Wieczorny, słodki zapach. Otwarcie zapachu uderza jabłkiem, cynamonem i lawendą. " +
		"W sercu kompozycji rozwijają się kwiat pomarańczy i konwalia. Bazę tworzy wanilia z paczulą."
	if raw.Description != wantDesc {
		t.Errorf("Description =\n%q\nwant\n%q", raw.Description, wantDesc)
	}

	want := product.Attributes{Capacity: "100ml", Concentration: "Eau de Parfum", Gender: "Mężczyzna"}
	if raw.Attributes != want {
		t.Errorf("Attributes = %+v", raw.Attributes)
	}

	if raw.Notes.Top != "jabłkiem, cynamonem i lawendą" {
		t.Errorf("Top = %q", raw.Notes.Top)
	}
	if raw.Notes.Heart != "kwiat pomarańczy i konwalia" {
		t.Errorf("Heart = %q", raw.Notes.Heart)
	}
	if raw.Notes.Base != "wanilia z paczulą" {
		t.Errorf("Base = %q", raw.Notes.Base)
	}
}

func TestParsePage_MissingParts(t *testing.T) {
	raw, err := parsePage([]byte(`<html><body><h1 class="product_title">Lattafa Asad</h1></body></html>`), productURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw.ExternalID != "" {
		t.Errorf("expected empty id, got %q", raw.ExternalID)
	}
	if raw.Description != product.NoDescription {
		t.Errorf("expected %q, got %q", product.NoDescription, raw.Description)
	}
	if raw.ImageURL != product.Placeholder {
		t.Errorf("expected placeholder image, got %q", raw.ImageURL)
	}
	if !raw.Price.IsZero() {
		t.Errorf("expected zero price, got %s", raw.Price)
	}
	if raw.InStock {
		t.Error("expected out of stock")
	}
	if raw.Notes.Top != "" || raw.Notes.Heart != "" || raw.Notes.Base != "" || len(raw.Notes.Other) != 0 {
		t.Errorf("expected no notes, got %+v", raw.Notes)
	}
	if err := raw.Validate(); !errors.Is(err, domain.ErrSkippableRecord) {
		t.Errorf("record without id must be skippable, got %v", err)
	}
}

func TestParsePage_NoTitleIsPlaceholder(t *testing.T) {
	raw, err := parsePage([]byte(`<html><head><link rel="shortlink" href="https://perfun.pl/?p=7"></head></html>`), productURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Name != product.Placeholder {
		t.Errorf("expected placeholder name, got %q", raw.Name)
	}
	if err := raw.Validate(); !errors.Is(err, domain.ErrSkippableRecord) {
		t.Errorf("record without name must be skippable, got %v", err)
	}
}

func TestParsePage_InvalidPrice(t *testing.T) {
	page := `<p class="price"><span class="woocommerce-Price-amount">zapytaj</span></p>`
	_, err := parsePage([]byte(page), productURL)
	if !errors.Is(err, domain.ErrSkippableRecord) {
		t.Fatalf("expected skippable error, got %v", err)
	}
	if domain.SkipReason(err) != "invalid price" {
		t.Errorf("unexpected reason %q", domain.SkipReason(err))
	}
}

func TestParsePage_ThousandsPrice(t *testing.T) {
	page := `<p class="price"><span class="woocommerce-Price-amount">1 299,50 zł</span></p>`
	raw, err := parsePage([]byte(page), productURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Price.String() != "1299.5" {
		t.Errorf("Price = %s", raw.Price)
	}
}

func TestShortlinkID_NonNumeric(t *testing.T) {
	raw, err := parsePage([]byte(`<link rel="shortlink" href="https://perfun.pl/?p=abc">`), productURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.ExternalID != "" {
		t.Errorf("expected empty id for non-numeric shortlink, got %q", raw.ExternalID)
	}
}

func TestExtractNotes(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want product.Notes
	}{
		{
			name: "primary verbs",
			desc: "Otwarcie kompozycji tworzy bergamotka. W sercu zapachu rozwijają się róże. Bazę perfum tworzy ambra.",
			want: product.Notes{Top: "bergamotka", Heart: "róże", Base: "ambra"},
		},
		{
			name: "fallback pattern",
			desc: "Otwarcie jest świeże i cytrusowe.",
			want: product.Notes{Top: "świeże i cytrusowe"},
		},
		{
			name: "case insensitive",
			desc: "OTWARCIE zapachu UDERZA pieprzem.",
			want: product.Notes{Top: "pieprzem"},
		},
		{
			name: "sentinel description",
			desc: product.NoDescription,
			want: product.Notes{},
		},
		{
			name: "no keywords",
			desc: "Klasyczny zapach na co dzień.",
			want: product.Notes{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractNotes(tt.desc); got.Top != tt.want.Top || got.Heart != tt.want.Heart || got.Base != tt.want.Base {
				t.Errorf("extractNotes() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseSitemap(t *testing.T) {
	urls, err := parseSitemap(readFixture(t, "sitemap.xml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"https://perfun.pl/produkt/afnan-9pm/",
		"https://perfun.pl/produkt/missing-page/",
		"https://perfun.pl/produkt/no-title/",
	}
	if len(urls) != len(want) {
		t.Fatalf("expected %d urls, got %v", len(want), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestParseSitemap_Invalid(t *testing.T) {
	if _, err := parseSitemap([]byte("<html>not a sitemap")); err == nil {
		t.Fatal("expected error")
	}
}
