package db

import (
	"testing"

	"github.com/shinyyama/bookswap-backend/internal/config"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.DB
		want string
	}{
		{"override", config.DB{Driver: "mysql", DSN: "custom"}, "custom"},
		{"mysql tcp", config.DB{Driver: "mysql", User: "u", Password: "p", Host: "db", Port: "3306", Name: "bs"},
			"u:p@tcp(db:3306)/bs?charset=utf8mb4&parseTime=True&loc=UTC"},
		{"mysql wrapped", config.DB{Driver: "mysql", User: "u", Password: "p", Host: "tcp(10.0.0.1:3307)", Name: "bs"},
			"u:p@tcp(10.0.0.1:3307)/bs?charset=utf8mb4&parseTime=True&loc=UTC"},
		{"mysql cloudsql", config.DB{Driver: "mysql", User: "u", Password: "p", InstanceConnectionName: "proj:region:inst", Name: "bs"},
			"u:p@unix(/cloudsql/proj:region:inst)/bs?charset=utf8mb4&parseTime=True&loc=UTC"},
		{"postgres", config.DB{Driver: "postgres", User: "u", Password: "p", Host: "pg", Port: "3306", Name: "bs"},
			"host=pg port=5432 user=u password=p dbname=bs sslmode=disable TimeZone=UTC"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, BuildDSN(&tc.cfg))
		})
	}
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	_, err := dialector(&config.DB{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
}
