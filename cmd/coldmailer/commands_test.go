package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValues(t *testing.T) {
	got, err := parseKeyValues("referral=Sam Lee, role=SRE")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"referral": "Sam Lee", "role": "SRE"}, got)

	got, err = parseKeyValues("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseKeyValues("flag=")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"flag": ""}, got)
}

func TestParseKeyValuesRejectsMalformed(t *testing.T) {
	_, err := parseKeyValues("novalue")
	assert.Error(t, err)

	_, err = parseKeyValues("=orphan")
	assert.Error(t, err)
}
