// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/featurebasedb/mistake/config"
	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/featurebasedb/mistake/dsl/universe"
	"github.com/featurebasedb/mistake/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schema = `
check-units = true

[[axis]]
name = "OrderID"
[[axis]]
name = "productid"
[[axis]]
name = "shipcountry"
[[axis]]
name = "productband"
[[axis]]
name = "productid_x10"
[[axis]]
name = "product"

[[unit]]
name = "each"
quantity = "count"
[[unit]]
name = "usd"
quantity = "money"

[[derived-unit]]
name = "usd_per_each"
numerator = ["usd"]
denominator = ["each"]

[[attribute]]
domain = "orderid"
range = "shipcountry"
source = "orders.csv"

[[attribute]]
domain = "productid"
range = "productband"
expr = "value < 40 ? \"low\" : \"high\""

[[attribute]]
domain = "productid"
range = "productid_x10"
expr = "value * 10"

[[tensor]]
name = "quantity_sold"
source = "order_details.csv"
axes = ["orderid", "productid"]
value-column = "quantity"
unit = "each"

[[tensor]]
name = "unit_price"
source = "order_details.csv"
axes = ["OrderID", "product"]
value-column = "unitprice"
unit = "usd_per_each"
[tensor.columns]
product = "productid"
`

const orderDetails = `orderid,productid,unitprice,quantity
10248,11,14,12
10248,42,9.5,10
10249,11,14,4
10250,41,20,9
`

const orders = `OrderID,ShipCountry
10248,France
10249,Germany
10250,Brazil
`

func writeWorkspace(t *testing.T, schemaText string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"schema.toml":       schemaText,
		"order_details.csv": orderDetails,
		"orders.csv":        orders,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return filepath.Join(dir, "schema.toml")
}

func TestParse(t *testing.T) {
	s, err := config.Parse([]byte(schema))
	require.NoError(t, err)
	assert.True(t, s.CheckUnits)
	assert.Len(t, s.Axes, 6)
	assert.Equal(t, "OrderID", s.Axes[0].Name)
	assert.Equal(t, []string{"each"}, s.DerivedUnits[0].Denominator)
	assert.Equal(t, "orders.csv", s.Attributes[0].Source)
	assert.Equal(t, `value < 40 ? "low" : "high"`, s.Attributes[1].Expr)
	require.Len(t, s.Tensors, 2)
	assert.Equal(t, map[string]string{"product": "productid"}, s.Tensors[1].Columns)
	assert.Equal(t, "", s.Dir)

	_, err = config.Parse([]byte("[[axis]\nname = "))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	path := writeWorkspace(t, schema)
	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(path), s.Dir)

	u, err := universe.New()
	require.NoError(t, err)
	require.NoError(t, s.Apply(u))

	assert.Equal(t, []string{"quantity_sold", "unit_price"}, u.Names())
	shapes := u.TensorTypes()
	assert.Equal(t, "[orderid, productid] each", shapes["quantity_sold"].String())
	assert.Equal(t, semantics.NewSpace("orderid", "product"), shapes["unit_price"].Space)

	t.Run("Query", func(t *testing.T) {
		buf, err := u.Query(context.Background(), "quantity_sold", nil)
		require.NoError(t, err)
		assert.Equal(t, 4, buf.Len())
		assert.Equal(t, 12.0, buf.Get(point("orderid", 10248, "productid", 11)))

		buf, err = u.Query(context.Background(), "unit_price", nil)
		require.NoError(t, err)
		assert.Equal(t, 9.5, buf.Get(point("orderid", 10248, "product", 42)))
	})

	t.Run("LookupAttribute", func(t *testing.T) {
		tr, ok := u.FindTransform(semantics.NewSpace("orderid"), semantics.NewSpace("shipcountry"))
		require.True(t, ok)
		p, err := tr.Apply(point("orderid", 10249))
		require.NoError(t, err)
		assert.Equal(t, "Germany", p["shipcountry"])

		_, err = tr.Apply(point("orderid", 1))
		assert.Error(t, err)
	})

	t.Run("ComputedAttribute", func(t *testing.T) {
		tr, ok := u.FindTransform(semantics.NewSpace("productid"), semantics.NewSpace("productband"))
		require.True(t, ok)
		p, err := tr.Apply(point("productid", 11))
		require.NoError(t, err)
		assert.Equal(t, "low", p["productband"])
		p, err = tr.Apply(point("productid", 42))
		require.NoError(t, err)
		assert.Equal(t, "high", p["productband"])

		tr, ok = u.FindTransform(semantics.NewSpace("productid"), semantics.NewSpace("productid_x10"))
		require.True(t, ok)
		p, err = tr.Apply(point("productid", 11))
		require.NoError(t, err)
		assert.Equal(t, int64(110), p["productid_x10"])
	})
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		code   errors.Code
		msg    string
	}{
		{
			name:   "UnknownUnit",
			schema: "[[axis]]\nname = \"a\"\n[[tensor]]\nname = \"t\"\nsource = \"orders.csv\"\naxes = [\"a\"]\nunit = \"furlong\"\n",
			code:   dsl.ErrUnknownUnit,
		},
		{
			name:   "UnknownAxis",
			schema: "[[tensor]]\nname = \"t\"\nsource = \"orders.csv\"\naxes = [\"a\"]\n",
			code:   dsl.ErrUnknownAxis,
		},
		{
			name:   "DuplicateAxis",
			schema: "[[axis]]\nname = \"a\"\n[[axis]]\nname = \"A\"\n",
			code:   dsl.ErrAlreadyRegistered,
		},
		{
			name:   "NoSource",
			schema: "[[axis]]\nname = \"a\"\n[[tensor]]\nname = \"t\"\naxes = [\"a\"]\n",
			msg:    "no source given",
		},
		{
			name:   "ArchiveWithoutMember",
			schema: "[[axis]]\nname = \"a\"\n[[tensor]]\nname = \"t\"\narchive = \"x.zip\"\naxes = [\"a\"]\n",
			msg:    "needs a member",
		},
		{
			name:   "ExprAndSource",
			schema: "[[axis]]\nname = \"a\"\n[[axis]]\nname = \"b\"\n[[attribute]]\ndomain = \"a\"\nrange = \"b\"\nexpr = \"value\"\nsource = \"orders.csv\"\n",
			msg:    "either an expression or a source",
		},
		{
			name:   "Delimiter",
			schema: "[[axis]]\nname = \"a\"\n[[tensor]]\nname = \"t\"\nsource = \"orders.csv\"\naxes = [\"a\"]\ndelimiter = \"::\"\n",
			msg:    "not a single character",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := config.Load(writeWorkspace(t, test.schema))
			require.NoError(t, err)
			u, err := universe.New()
			require.NoError(t, err)
			err = s.Apply(u)
			require.Error(t, err)
			if test.code != "" {
				assert.True(t, errors.Is(err, test.code), "got %v", err)
			}
			if test.msg != "" {
				assert.Contains(t, err.Error(), test.msg)
			}
		})
	}
}

func point(kv ...interface{}) types.Point {
	p := types.Point{}
	for i := 0; i < len(kv); i += 2 {
		p[kv[i].(string)] = types.Normalize(kv[i+1])
	}
	return p
}

func TestApplyDefersAttributeTables(t *testing.T) {
	s, err := config.Load(writeWorkspace(t, "[[axis]]\nname = \"orderid\"\n[[axis]]\nname = \"region\"\n[[axis]]\nname = \"warehouse\"\n"+
		"[[attribute]]\ndomain = \"orderid\"\nrange = \"region\"\nsource = \"orders.csv\"\n"+
		"[[attribute]]\ndomain = \"orderid\"\nrange = \"warehouse\"\nsource = \"missing.csv\"\n"))
	require.NoError(t, err)
	u, err := universe.New()
	require.NoError(t, err)
	require.NoError(t, s.Apply(u))

	for _, r := range []string{"region", "warehouse"} {
		tr, ok := u.FindTransform(semantics.NewSpace("orderid"), semantics.NewSpace(r))
		require.True(t, ok)
		_, err = tr.Apply(point("orderid", 10248))
		assert.True(t, errors.Is(err, dsl.ErrReadingSource), "got %v", err)
	}
}
