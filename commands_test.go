package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := execute("hash-password", "hunter22")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter22")))
}

func TestAnalyzeRequiresCaseID(t *testing.T) {
	_, err := execute("analyze")
	assert.Error(t, err)
}

func TestAnalyzeRejectsInvalidCaseID(t *testing.T) {
	_, err := execute("analyze", "not-an-id")
	assert.ErrorContains(t, err, `invalid case id "not-an-id"`)
}

func TestRunOnceTakesNoArgs(t *testing.T) {
	_, err := execute("run-once", "extra")
	assert.Error(t, err)
}
