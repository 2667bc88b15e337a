package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-pro/pkg/jwt"
)

func TestGenerateYParse(t *testing.T) {
	token, err := jwt.Generate("secreto", "user-9", "tenant-9", "facturacion-pro", 15)
	require.NoError(t, err)

	userID, tenantID, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", userID)
	assert.Equal(t, "tenant-9", tenantID)
}

func TestParseRechaza(t *testing.T) {
	t.Run("secreto vacío", func(t *testing.T) {
		_, err := jwt.Generate("", "u", "t", "iss", 15)
		assert.Error(t, err)
		_, _, err = jwt.Parse("", "cualquier-cosa")
		assert.Error(t, err)
	})

	t.Run("token expirado", func(t *testing.T) {
		token, err := jwt.Generate("secreto", "u", "t", "iss", -1)
		require.NoError(t, err)
		_, _, err = jwt.Parse("secreto", token)
		assert.Error(t, err)
	})

	t.Run("firma incorrecta", func(t *testing.T) {
		token, err := jwt.Generate("secreto", "u", "t", "iss", 15)
		require.NoError(t, err)
		_, _, err = jwt.Parse("otro", token)
		assert.Error(t, err)
	})
}
