// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package api

import "net/http"

// RouterForTest exposes the composed middleware chain to the test package.
func RouterForTest(server *Server) http.Handler {
	return server.router
}
