package images

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/domain"
)

func TestFilenameSanitizer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"rampa.jpg", "rampa.jpg"},
		{"mi foto (1).png", "mi_foto__1_.png"},
		{"señalización.jpg", "se_alizaci_n.jpg"},
		{"../../etc/passwd", ".._.._etc_passwd"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, filenameSanitizer.ReplaceAllString(tc.in, "_"), "input %q", tc.in)
	}
}

func TestClassifyUploadError(t *testing.T) {
	t.Run("permission class", func(t *testing.T) {
		for _, msg := range []string{
			"request blocked by CORS policy",
			"caller does not have storage.objects.create permission",
			"401 Unauthorized",
			"403 Forbidden",
		} {
			err := classifyUploadError(errors.New(msg))
			assert.ErrorIs(t, err, domain.ErrUploadPermission, msg)
		}
	})

	t.Run("transient class", func(t *testing.T) {
		err := classifyUploadError(errors.New("connection reset by peer"))
		assert.ErrorIs(t, err, domain.ErrUploadFailed)
		assert.NotErrorIs(t, err, domain.ErrUploadPermission)
	})
}
