package bootstrap

import (
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpapi "github.com/mapa-accesible/mapa-accesible-backend/internal/api/http"
	apimw "github.com/mapa-accesible/mapa-accesible-backend/internal/api/http/middleware"
	authmw "github.com/mapa-accesible/mapa-accesible-backend/internal/auth/middleware"
	pointshttp "github.com/mapa-accesible/mapa-accesible-backend/internal/points/http"
	roleshttp "github.com/mapa-accesible/mapa-accesible-backend/internal/roles/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	Redis       *redis.Client
	AuthClient  *fbauth.Client
	Roles       roleshttp.RoleService
	Points      pointshttp.PointService
	Log         zerolog.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimw.RequestIDMiddleware(dep.Log))
	r.Use(cors.Default())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(authmw.FirebaseAuthMiddleware(dep.AuthClient))

	roleshttp.New(dep.Roles).Register(api)
	pointshttp.New(dep.Points).Register(api)

	return r
}
