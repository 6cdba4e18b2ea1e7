package main

import "github.com/shelfsight/matchengine/internal/app"

func main() {
	err := app.NewMatchEngine().
		Introspect(&app.ReportLoggerIntrospector{}).
		Run()
	if err != nil {
		panic(err)
	}
}
