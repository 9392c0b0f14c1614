package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateAddrLong(t *testing.T) {
	addr := "0xd8da6bf26964af9d7eed9e03e53415d37aa96045"
	got := TruncateAddr(addr)
	assert.Equal(t, "0xd8da…6045", got)
}

func TestTruncateAddrShort(t *testing.T) {
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
}

func TestMessageHelpersContainText(t *testing.T) {
	assert.Contains(t, Success("deployed"), "deployed")
	assert.Contains(t, Warn("low balance"), "low balance")
	assert.Contains(t, Err("reverted"), "reverted")
	assert.Contains(t, Info("estimating"), "estimating")
}
