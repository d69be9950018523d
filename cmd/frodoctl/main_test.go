package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReorderArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-dry-run", "-config", "c.yaml", "file.yaml"},
		reorderArgs([]string{"file.yaml", "-dry-run", "-config", "c.yaml"}))
	assert.Equal(t,
		[]string{"-db=postgres://x", "a", "b"},
		reorderArgs([]string{"a", "-db=postgres://x", "b"}))
	assert.Equal(t,
		[]string{"-status", "extra"},
		reorderArgs([]string{"-status", "extra"}), "bool flags do not swallow the next argument")
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "https://eth-mainnet.g.alchemy.com/v2/***", redactKey("https://eth-mainnet.g.alchemy.com/v2/abcdefghijklmnop"))
	assert.Equal(t, "https://mainnet.base.org", redactKey("https://mainnet.base.org"))
	assert.Equal(t, "http://localhost:8545", redactKey("http://localhost:8545"))
}
