package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/repository/memory"
	"github.com/bookshelf/bookshelf/internal/testutil"
)

func memoryConnect(store *memory.Store) connectFunc {
	return func(context.Context, string) (accountCreator, func(), error) {
		return store, func() {}, nil
	}
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage:")

	stderr.Reset()
	assert.Equal(t, 2, run(context.Background(), []string{"bogus"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "bogus"`)

	assert.Equal(t, 0, run(context.Background(), []string{"help"}, &stdout, &stderr))
}

func TestCreateAccount(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	args := []string{
		"-database-url", "postgres://unused",
		"-email", " Ada@Example.com ",
		"-first-name", "Ada",
		"-last-name", "Lovelace",
		"-password", testutil.TestPassword,
		"-format", "json",
	}

	var out bytes.Buffer
	require.NoError(t, runCreateAccount(ctx, args, &out, memoryConnect(store)))

	var created accountOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &created))
	assert.Equal(t, "ada@example.com", created.Email)
	assert.Positive(t, created.ID)

	stored, err := store.FindAccountByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword(testutil.TestPassword, stored.PasswordHash))

	err = runCreateAccount(ctx, args, &out, memoryConnect(store))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestCreateAccount_RejectsBadInput(t *testing.T) {
	connect := memoryConnect(memory.New())
	base := []string{"-database-url", "postgres://unused", "-first-name", "A", "-last-name", "B"}

	err := runCreateAccount(context.Background(), append(base, "-password", testutil.TestPassword), &bytes.Buffer{}, connect)
	assert.ErrorContains(t, err, "-email")

	err = runCreateAccount(context.Background(), append(base, "-email", "a@example.com", "-password", "123"), &bytes.Buffer{}, connect)
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestVerifyPassword(t *testing.T) {
	credential, err := auth.HashPassword(testutil.TestPassword)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runVerifyPassword([]string{"-credential", credential}, strings.NewReader(testutil.TestPassword+"\n"), &out))
	assert.Equal(t, "ok\n", out.String())

	err = runVerifyPassword([]string{"-credential", credential}, strings.NewReader("wrong\n"), &out)
	assert.EqualError(t, err, "password does not match")

	err = runVerifyPassword(nil, strings.NewReader(""), &out)
	assert.EqualError(t, err, "-credential is required")
}
