// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP helpers shared by all handlers.

  - WithLogging: request start/completion logging with duration
  - JSONResponse / RawJSONResponse / ErrorResponse: response helpers
  - ParseJSONBody: JSON decoding with a 16 KB body cap
  - CORS: cross-origin support for the viewer frontend
  - GetClientIP: client address extraction behind proxies, used as the
    anonymous voter fingerprint source
*/
package middleware
