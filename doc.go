/*
Package quickly is a small HTTP/1.1 front end: a wire parser and serializer,
an ordered route table with ":param" segments, and an onion middleware chain.

Each connection carries exactly one request. The engine reads it once into a
pooled buffer, parses it, runs it through the middleware chain and the router,
writes the response and closes the connection.

Quick Start

	package main

	import (
	    "github.com/searchktools/quickly/app"
	    "github.com/searchktools/quickly/config"
	    "github.com/searchktools/quickly/core/http"
	    "github.com/searchktools/quickly/core/middleware"
	)

	func main() {
	    cfg, err := config.New()
	    if err != nil {
	        panic(err)
	    }
	    application := app.New(cfg)

	    engine := application.Engine()
	    engine.Use(middleware.Recovery(*application.Logger()))

	    engine.GET("/hello/:name", http.HandlerFunc(func(req *http.Request, res *http.Response) *http.Response {
	        return res.Send("Hello, " + req.Param("name"))
	    }))

	    application.Run()
	}

Routing

Routes are matched in registration order and the first match wins.
Registering the same method and pattern again replaces the handler in place.
A ":name" segment matches any single path segment and binds it as a param.

Middleware

Middleware registered with Use wraps every request; Work limits it to paths
with a given prefix. A middleware either returns its own response or calls
next.Serve to continue; the router is the innermost layer.

Modules

  - app: Application lifecycle and logging
  - config: Flags, environment and JSON file configuration
  - core: Engine, connection handling and listener setup
  - core/http: Request, Response, Header and the wire format
  - core/router: Ordered route table
  - core/middleware: Middleware chain and bundled middleware
  - core/codec: Protobuf and protobuf-JSON body codecs
  - core/pools: Byte buffer and worker pools
  - core/observability: Per-route request metrics
*/
package quickly
