package postgres

import (
	"testing"

	"github.com/sifan077/PowerBio/config"
	"github.com/stretchr/testify/assert"
)

func TestConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  config.PostgresConfig{Database: "powerbio"},
			want: "postgres://localhost:5432/powerbio?sslmode=disable",
		},
		{
			name: "credentials are escaped",
			cfg: config.PostgresConfig{
				Host:     "db",
				Port:     6543,
				User:     "bio",
				Password: "p@ss/word",
				Database: "powerbio",
				SSLMode:  "require",
			},
			want: "postgres://bio:p%40ss%2Fword@db:6543/powerbio?sslmode=require",
		},
		{
			name: "user without password",
			cfg:  config.PostgresConfig{User: "bio", Database: "powerbio"},
			want: "postgres://bio@localhost:5432/powerbio?sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConnString(tt.cfg))
		})
	}
}
