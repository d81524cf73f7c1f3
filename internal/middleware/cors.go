package middleware

import "github.com/go-chi/cors"

// devOrigins are the web client dev servers accepted when no origins are
// configured.
var devOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// CORS builds the cors.Options for the browser client. Credentialed requests
// are only allowed when the origin list is explicit; a wildcard origin forces
// AllowCredentials off because browsers reject the combination.
func CORS(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = devOrigins
	}

	creds := true
	for _, o := range origins {
		if o == "*" {
			creds = false
		}
	}

	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: creds,
		MaxAge:           300,
	}
}
