// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package toml_test

import (
	"testing"
	"time"

	"github.com/featurebasedb/mistake/toml"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	var d toml.Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	require.Equal(t, toml.Duration(90*time.Second), d)

	b, err := d.MarshalTOML()
	require.NoError(t, err)
	require.Equal(t, `"1m30s"`, string(b))

	require.Error(t, d.UnmarshalText([]byte("soon")))
}
