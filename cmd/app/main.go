// @title LINAC Study Service API
// @version 1.0.0
// @description API консоли ускорителя и экрана визуализации с общим состоянием сценария.
// @host localhost:8082
// @BasePath /api/v1
package main

import "github.com/iwtcode/linacService/internal/app"

func main() {
	// Создаем и запускаем новый экземпляр приложения fx
	app.New().Run()
}
