// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/pkg/errutil"
)

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
	}{
		{name: "valid integer", input: "2", wantVersion: 2},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "leading whitespace is handled", input: "  1", wantVersion: 1},
		{name: "trailing chars are ignored", input: "2abc", wantVersion: 2},
		{name: "negative parses", input: "-1", wantVersion: -1},
		{name: "non-numeric", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				assert.Equal(t, 0, version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := getDatabaseURL()
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")

	t.Setenv("DATABASE_URL", "postgres://localhost:5432/fintrack")
	url, err := getDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/fintrack", url)
}

type fakeMigrator struct {
	version uint
	dirty   bool
	pending []uint
	applied []uint
	upErr   error
	upCalls int
	down    bool
	forced  *int
	closed  bool
}

func (f *fakeMigrator) Up() error {
	f.upCalls++
	if f.upErr != nil {
		return f.upErr
	}
	f.applied = append(f.applied, f.pending...)
	f.pending = nil
	return nil
}

func (f *fakeMigrator) Down() error {
	f.down = true
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, nil }

func (f *fakeMigrator) Force(version int) error {
	f.forced = &version
	return nil
}

func (f *fakeMigrator) PendingMigrations() ([]uint, error) { return f.pending, nil }

func (f *fakeMigrator) AppliedMigrations() ([]uint, error) { return f.applied, nil }

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

func runMigrateCmd(t *testing.T, fake *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/fintrack")

	original := newMigrator
	newMigrator = func(string) (migrationRunner, error) { return fake, nil }
	t.Cleanup(func() { newMigrator = original })

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"migrate"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestMigrateUp(t *testing.T) {
	fake := &fakeMigrator{pending: []uint{1, 2}}
	out, err := runMigrateCmd(t, fake, "up")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.upCalls)
	assert.True(t, fake.closed)
	assert.Contains(t, out, "Applying 2 migration(s)")
	assert.Contains(t, out, "Migrations completed successfully")
}

func TestMigrate_BareRunsUp(t *testing.T) {
	fake := &fakeMigrator{pending: []uint{1}}
	_, err := runMigrateCmd(t, fake)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.upCalls)
}

func TestMigrateUp_NothingPending(t *testing.T) {
	fake := &fakeMigrator{version: 2, applied: []uint{1, 2}}
	out, err := runMigrateCmd(t, fake, "up")
	require.NoError(t, err)
	assert.Zero(t, fake.upCalls)
	assert.Contains(t, out, "Schema is up to date")
}

func TestMigrateUp_Failure(t *testing.T) {
	fake := &fakeMigrator{pending: []uint{1}, upErr: errors.New("syntax error")}
	_, err := runMigrateCmd(t, fake, "up")
	errutil.AssertErrorCode(t, err, "MIGRATION_FAILED")
	assert.True(t, fake.closed)
}

func TestMigrateStatus(t *testing.T) {
	fake := &fakeMigrator{version: 1, applied: []uint{1}, pending: []uint{2}}
	out, err := runMigrateCmd(t, fake, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 1, clean")
	assert.Contains(t, out, "000001_create_accounts")
	assert.Contains(t, out, "000002_create_email_otps")
}

func TestMigrateStatus_Dirty(t *testing.T) {
	fake := &fakeMigrator{version: 2, dirty: true}
	out, err := runMigrateCmd(t, fake, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "dirty")
	assert.Contains(t, out, "Applied: none")
	assert.Contains(t, out, "Pending: none")
}

func TestMigrateDown_RequiresConfirmation(t *testing.T) {
	fake := &fakeMigrator{}
	_, err := runMigrateCmd(t, fake, "down")
	errutil.AssertErrorCode(t, err, "CONFIRMATION_REQUIRED")
	assert.False(t, fake.down)

	fake = &fakeMigrator{}
	_, err = runMigrateCmd(t, fake, "down", "--yes")
	require.NoError(t, err)
	assert.True(t, fake.down)
}

func TestMigrateForce(t *testing.T) {
	fake := &fakeMigrator{}
	out, err := runMigrateCmd(t, fake, "force", "1")
	require.NoError(t, err)
	require.NotNil(t, fake.forced)
	assert.Equal(t, 1, *fake.forced)
	assert.Contains(t, out, "Forced schema version to 1")

	_, err = runMigrateCmd(t, &fakeMigrator{}, "force", "latest")
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "status"})
	errutil.AssertErrorCode(t, cmd.Execute(), "CONFIG_INVALID")
}
