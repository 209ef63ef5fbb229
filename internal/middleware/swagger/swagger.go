package swagger

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/iwtcode/linacService/docs"
)

// Config содержит настройки для Swagger
type Config struct {
	Enabled bool
	Path    string
	// Host подставляется в спецификацию, чтобы "Try it out" шел на порт сервиса
	Host     string
	BasePath string
}

// Setup инициализирует маршруты Swagger
func Setup(r *gin.Engine, cfg *Config) {
	if cfg == nil || !cfg.Enabled {
		return
	}
	if cfg.Host != "" {
		docs.SwaggerInfo.Host = cfg.Host
	}
	if cfg.BasePath != "" {
		docs.SwaggerInfo.BasePath = cfg.BasePath
	}
	path := strings.TrimSuffix(cfg.Path, "/")
	r.GET(path+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL(path+"/doc.json"),
		ginSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
	))
}
