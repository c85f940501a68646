// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from CLI flags and environment.

# Precedence

CLI flags override environment variables, which override defaults. A .env
file is loaded (via godotenv) before the environment is consulted.

# Required Settings

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - FINGERPRINT_SALT (-fingerprint-salt): secret for voter fingerprint HMAC

# Optional Settings

  - PORT (-p): server port (default 3319)
  - DATABASE_TYPE (-t): "sqlite" or "postgres" (default sqlite)
  - QUEUE_PATH (-q): vote queue file (default votes.queue)
  - WORKER_COUNT (-workers): vote processor concurrency (default 5)
  - -max-attempts: deliveries before dead-lettering a job (default 5)

The TTL windows (admission lock 24h, broadcast coalescing 1s, result cache
1h) have no flags; they are defaulted in ParseFlags and only overridden by
tests constructing a Config directly.
*/
package cliparse
