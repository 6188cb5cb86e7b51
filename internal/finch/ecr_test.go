package finch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsECRRepository(t *testing.T) {
	assert.True(t, IsECRRepository("123456789012.dkr.ecr.us-west-2.amazonaws.com/app:latest"))
	assert.True(t, IsECRRepository("123456789012.dkr.ecr.cn-north-1.amazonaws.com.cn/app"))
	assert.False(t, IsECRRepository("docker.io/library/nginx:latest"))
	assert.False(t, IsECRRepository("public.ecr.aws/nginx/nginx"))
	assert.False(t, IsECRRepository("12345.dkr.ecr.us-west-2.amazonaws.com/app"))
}

func TestContainsECRReference(t *testing.T) {
	dir := t.TempDir()

	ecr := filepath.Join(dir, "Dockerfile.ecr")
	require.NoError(t, os.WriteFile(ecr, []byte("FROM 123456789012.dkr.ecr.eu-central-1.amazonaws.com/base:1\nRUN true\n"), 0o644))
	assert.True(t, ContainsECRReference(ecr))

	plain := filepath.Join(dir, "Dockerfile")
	require.NoError(t, os.WriteFile(plain, []byte("FROM alpine:3.20\n"), 0o644))
	assert.False(t, ContainsECRReference(plain))

	assert.False(t, ContainsECRReference(filepath.Join(dir, "missing")))
}
