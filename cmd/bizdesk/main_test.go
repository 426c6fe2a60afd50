package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bizdesk/bizdesk/internal/app"
	_ "github.com/bizdesk/bizdesk/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
