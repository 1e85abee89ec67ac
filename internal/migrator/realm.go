// Package migrator maps the handbook catalog onto Atlas schema types so the
// catalog can be exported as Atlas HCL or planned against a live PostgreSQL
// database.
package migrator

import (
	"fmt"
	"strings"

	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/registry"
)

// DefaultSchema is used when no schema name is configured
const DefaultSchema = "public"

// Identifier lower-cases a handbook name for use in Postgres
func Identifier(name string) string {
	return strings.ToLower(name)
}

// ColumnType maps a handbook type onto the Atlas postgres type it is stored as
func ColumnType(dt catalog.DataType) schema.Type {
	switch dt.Base {
	case catalog.TypeVarchar2, catalog.TypeNVarchar2:
		return &schema.StringType{T: "character varying", Size: dt.Length}
	case catalog.TypeChar:
		return &schema.StringType{T: "character", Size: dt.Length}
	case catalog.TypeNumber:
		return &schema.DecimalType{T: "numeric", Precision: dt.Precision, Scale: dt.Scale}
	case catalog.TypeFloat:
		return &schema.FloatType{T: "double precision"}
	case catalog.TypeInteger:
		return &schema.IntegerType{T: "bigint"}
	case catalog.TypeDate, catalog.TypeTimestamp:
		return &schema.TimeType{T: "timestamp without time zone"}
	case catalog.TypeBlob:
		return &schema.BinaryType{T: "bytea"}
	default:
		return &schema.StringType{T: "text"}
	}
}

// BuildRealm converts the named tables of the registry (all when none are
// given) into an Atlas realm with a single schema. Foreign keys to tables
// outside the selection are left out.
func BuildRealm(reg *registry.Registry, schemaName string, tables ...string) (*schema.Realm, error) {
	if schemaName == "" {
		schemaName = DefaultSchema
	}

	defs, err := reg.Select(tables...)
	if err != nil {
		return nil, err
	}

	realm := &schema.Realm{}
	sch := &schema.Schema{Name: schemaName, Realm: realm}
	realm.Schemas = []*schema.Schema{sch}

	byName := make(map[string]*schema.Table, len(defs))
	for _, def := range defs {
		t := buildTable(def, sch)
		byName[def.Name] = t
		sch.Tables = append(sch.Tables, t)
	}

	for _, def := range defs {
		t := byName[def.Name]
		for _, fk := range def.ForeignKeys() {
			ref, ok := byName[fk.TargetTable]
			if !ok || len(fk.ReferencedColumns) != len(fk.Columns) {
				continue
			}
			afk := &schema.ForeignKey{
				Symbol:   Identifier(fk.Name),
				Table:    t,
				RefTable: ref,
				OnUpdate: schema.NoAction,
				OnDelete: schema.NoAction,
			}
			for i, col := range fk.Columns {
				c, _ := t.Column(Identifier(col))
				rc, _ := ref.Column(Identifier(fk.ReferencedColumns[i]))
				if c == nil || rc == nil {
					return nil, fmt.Errorf("foreign key %s: unresolved column %s", fk.Name, col)
				}
				afk.Columns = append(afk.Columns, c)
				afk.RefColumns = append(afk.RefColumns, rc)
				c.ForeignKeys = append(c.ForeignKeys, afk)
			}
			t.ForeignKeys = append(t.ForeignKeys, afk)
		}
	}

	return realm, nil
}

func buildTable(def *catalog.TableDefinition, sch *schema.Schema) *schema.Table {
	t := &schema.Table{Name: Identifier(def.Name), Schema: sch}
	if def.Title != "" {
		t.Attrs = append(t.Attrs, &schema.Comment{Text: def.Title})
	}

	for _, col := range def.Columns {
		c := &schema.Column{
			Name: Identifier(col.Name),
			Type: &schema.ColumnType{
				Type: ColumnType(col.Type),
				Raw:  col.Type.PostgresType(),
				Null: !def.IsPrimaryKeyColumn(col.Name),
			},
		}
		if col.Label != "" {
			c.Attrs = append(c.Attrs, &schema.Comment{Text: col.Label})
		}
		t.Columns = append(t.Columns, c)
	}

	for _, key := range def.Keys {
		switch key.Kind {
		case catalog.KeyPrimary:
			t.PrimaryKey = buildIndex(t, key, true)
		case catalog.KeyUnique:
			t.Indexes = append(t.Indexes, buildIndex(t, key, true))
		case catalog.KeyNatural, catalog.KeyIndex:
			t.Indexes = append(t.Indexes, buildIndex(t, key, false))
		}
	}
	return t
}

func buildIndex(t *schema.Table, key *catalog.KeyConstraint, unique bool) *schema.Index {
	idx := &schema.Index{Name: Identifier(key.Name), Unique: unique, Table: t}
	for i, col := range key.Columns {
		c, ok := t.Column(Identifier(col))
		if !ok {
			continue
		}
		part := &schema.IndexPart{SeqNo: i + 1, C: c}
		idx.Parts = append(idx.Parts, part)
		c.Indexes = append(c.Indexes, idx)
	}
	return idx
}

// MarshalHCL renders the catalog as an Atlas HCL schema document
func MarshalHCL(reg *registry.Registry, schemaName string, tables ...string) ([]byte, error) {
	realm, err := BuildRealm(reg, schemaName, tables...)
	if err != nil {
		return nil, err
	}
	out, err := postgres.MarshalHCL.MarshalSpec(realm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal HCL: %w", err)
	}
	return out, nil
}
