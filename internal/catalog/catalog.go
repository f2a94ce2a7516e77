package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound marks a missing product or customer. Callers treat it as a
// soft miss, never as a pipeline failure.
var ErrNotFound = errors.New("catalog: not found")

// PlaceholderDescription is shown for codes the catalog cannot resolve; an
// unknown code still appears in the order summary rather than aborting it.
const PlaceholderDescription = "Sin coincidencia de Articulos"

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Product is one sellable catalog article.
type Product struct {
	Code        string
	Description string
}

// Customer is an ERP customer record.
type Customer struct {
	CompanyCode int
	Code        int
	Name        string
	Address     string
	TaxID       string
	Phones      []string
	Emails      []string
}

// Store reads the ERP catalog and customer tables. Both are read-only from
// this service's perspective.
type Store struct {
	db Querier
}

func NewStore(db Querier) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// NormalizeCode canonicalizes a product code for matching: trimmed,
// upper-cased, and with leading zeros stripped. Both forms are returned
// because stored codes sometimes keep the zeros.
func NormalizeCode(code string) (norm, stripped string) {
	norm = strings.ToUpper(strings.TrimSpace(code))
	stripped = strings.TrimLeft(norm, "0")
	return norm, stripped
}

// saleable restricts lookups to articles that can actually be ordered.
const saleable = `codigo_empresa = 1
	  AND obsoleto_lc = '0'
	  AND bloqueo_pedido_compra = '0'
	  AND bloqueo_compra = '0'`

// ProductByCode resolves a (possibly sloppily typed) product code. The SQL
// suffix match casts a wide net; the exact check against both normalized
// forms happens here so that "0875" and "875" both find article "875".
func (s *Store) ProductByCode(ctx context.Context, code string) (Product, error) {
	norm, stripped := NormalizeCode(code)

	query := `
		SELECT codigo_articulo, COALESCE(descripcion_articulo, '')
		FROM articulos
		WHERE UPPER(TRIM(codigo_articulo)) LIKE '%' || $1
		  AND ` + saleable
	rows, err := s.db.Query(ctx, query, stripped)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: product lookup: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.Code, &p.Description); err != nil {
			return Product{}, fmt.Errorf("catalog: scan product: %w", err)
		}
		candidate := strings.ToUpper(strings.TrimLeft(strings.TrimSpace(p.Code), "0"))
		if candidate == norm || candidate == stripped {
			return p, nil
		}
	}
	if err := rows.Err(); err != nil {
		return Product{}, fmt.Errorf("catalog: product lookup: %w", err)
	}
	return Product{}, ErrNotFound
}

// SearchProducts finds articles whose description matches any of the given
// keywords.
func (s *Store) SearchProducts(ctx context.Context, keywords []string) ([]Product, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	conds := make([]string, 0, len(keywords))
	args := make([]any, 0, len(keywords))
	for i, kw := range keywords {
		conds = append(conds, fmt.Sprintf("descripcion_articulo ILIKE $%d", i+1))
		args = append(args, "%"+kw+"%")
	}
	query := fmt.Sprintf(`
		SELECT codigo_articulo, COALESCE(descripcion_articulo, '')
		FROM articulos
		WHERE (%s)
		  AND %s`, strings.Join(conds, " OR "), saleable)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: product search: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.Code, &p.Description); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: product search: %w", err)
	}
	return out, nil
}

// FormatProductLines renders search results the way the chat prompt expects
// catalog context.
func FormatProductLines(products []Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- Codigo de Articulo: %s / Descripcion: %s", p.Code, p.Description))
	}
	return strings.Join(lines, "\n")
}

// CustomerByPhone resolves a customer by phone suffix across the three phone
// columns the ERP keeps.
func (s *Store) CustomerByPhone(ctx context.Context, phone string) (Customer, error) {
	query := `
		SELECT codigo_empresa, codigo_cliente, COALESCE(razon_social, ''),
		       COALESCE(domicilio, ''), COALESCE(cif_dni, ''),
		       COALESCE(telefono, ''), COALESCE(telefono2, ''), COALESCE(telefono3, ''),
		       COALESCE(email1, ''), COALESCE(email2, '')
		FROM clientes
		WHERE telefono ILIKE $1 OR telefono2 ILIKE $1 OR telefono3 ILIKE $1
		LIMIT 1`

	var c Customer
	var p1, p2, p3, e1, e2 string
	err := s.db.QueryRow(ctx, query, "%"+phone).Scan(
		&c.CompanyCode, &c.Code, &c.Name, &c.Address, &c.TaxID,
		&p1, &p2, &p3, &e1, &e2,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("catalog: customer lookup: %w", err)
	}
	for _, p := range []string{p1, p2, p3} {
		if p != "" {
			c.Phones = append(c.Phones, p)
		}
	}
	for _, e := range []string{e1, e2} {
		if e != "" {
			c.Emails = append(c.Emails, e)
		}
	}
	return c, nil
}
