package catalog

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in           string
		wantNorm     string
		wantStripped string
	}{
		{" 0875 ", "0875", "875"},
		{"gft543", "GFT543", "GFT543"},
		{"0001A", "0001A", "1A"},
		{"875", "875", "875"},
	}
	for _, tt := range tests {
		norm, stripped := NormalizeCode(tt.in)
		if norm != tt.wantNorm || stripped != tt.wantStripped {
			t.Fatalf("NormalizeCode(%q) = (%q, %q), want (%q, %q)",
				tt.in, norm, stripped, tt.wantNorm, tt.wantStripped)
		}
	}
}

func TestProductByCode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	// Suffix LIKE returns a false candidate alongside the real article; the
	// in-process exact check must pick the right one.
	mock.ExpectQuery("SELECT codigo_articulo").
		WithArgs("875").
		WillReturnRows(pgxmock.NewRows([]string{"codigo_articulo", "descripcion_articulo"}).
			AddRow("10875", "Otra cosa").
			AddRow("0875", "Tornillo M4"))

	p, err := store.ProductByCode(context.Background(), " 0875 ")
	if err != nil {
		t.Fatalf("ProductByCode() error = %v", err)
	}
	if p.Code != "0875" || p.Description != "Tornillo M4" {
		t.Fatalf("ProductByCode() = %+v", p)
	}
}

func TestProductByCodeNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	mock.ExpectQuery("SELECT codigo_articulo").
		WithArgs("NOPE99").
		WillReturnRows(pgxmock.NewRows([]string{"codigo_articulo", "descripcion_articulo"}).
			AddRow("XNOPE99X", "Suffix no exacto"))

	if _, err := store.ProductByCode(context.Background(), "NOPE99"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchProducts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	mock.ExpectQuery("SELECT codigo_articulo").
		WithArgs("%tornillo%", "%tuerca%").
		WillReturnRows(pgxmock.NewRows([]string{"codigo_articulo", "descripcion_articulo"}).
			AddRow("875", "Tornillo M4").
			AddRow("991", "Tuerca M4"))

	got, err := store.SearchProducts(context.Background(), []string{"tornillo", "tuerca"})
	if err != nil {
		t.Fatalf("SearchProducts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}

	if lines := FormatProductLines(got); lines != "- Codigo de Articulo: 875 / Descripcion: Tornillo M4\n- Codigo de Articulo: 991 / Descripcion: Tuerca M4" {
		t.Fatalf("unexpected rendering:\n%s", lines)
	}

	if got, err := store.SearchProducts(context.Background(), nil); err != nil || got != nil {
		t.Fatalf("empty keyword list should be a no-op, got (%v, %v)", got, err)
	}
}

func TestCustomerByPhone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	mock.ExpectQuery("SELECT codigo_empresa").
		WithArgs("%34688773722").
		WillReturnRows(pgxmock.NewRows([]string{
			"codigo_empresa", "codigo_cliente", "razon_social", "domicilio", "cif_dni",
			"telefono", "telefono2", "telefono3", "email1", "email2",
		}).AddRow(1, 4411, "Ferretería Sol", "Calle Mayor 1", "B1234", "34688773722", "", "", "sol@example.com", ""))

	c, err := store.CustomerByPhone(context.Background(), "34688773722")
	if err != nil {
		t.Fatalf("CustomerByPhone() error = %v", err)
	}
	if c.Code != 4411 || c.Name != "Ferretería Sol" {
		t.Fatalf("CustomerByPhone() = %+v", c)
	}
	if len(c.Phones) != 1 || len(c.Emails) != 1 {
		t.Fatalf("expected blanks dropped, got phones=%v emails=%v", c.Phones, c.Emails)
	}
}

func TestCustomerByPhoneNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	mock.ExpectQuery("SELECT codigo_empresa").
		WithArgs("%000").
		WillReturnRows(pgxmock.NewRows([]string{
			"codigo_empresa", "codigo_cliente", "razon_social", "domicilio", "cif_dni",
			"telefono", "telefono2", "telefono3", "email1", "email2",
		}))

	if _, err := store.CustomerByPhone(context.Background(), "000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
