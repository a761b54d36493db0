// Package config loads eyeglass options from YAML files and EYEGLASS_*
// environment variables.
//
// A configuration file mirrors Options:
//
//	root: .
//	cacheDir: .eyeglass_cache
//	includePaths: [styles/vendor]
//	strictModuleImports: true
//	modules:
//	  - path: ../shared-theme
//	    name: theme
//	assets:
//	  httpPrefix: /static
//	  sources:
//	    - directory: images
//	      name: img
//	      pattern: "*.png"
//	fileCache:
//	  size: 512
//	  ttl: 5m
//
// Environment variables override the file:
//
//	EYEGLASS_ROOT, EYEGLASS_CACHE_DIR, EYEGLASS_INCLUDE_PATHS,
//	EYEGLASS_HTTP_PREFIX, EYEGLASS_IGNORE_DEPRECATIONS,
//	EYEGLASS_ENABLE_IMPORT_ONCE, EYEGLASS_STRICT_MODULE_IMPORTS,
//	EYEGLASS_USE_GLOBAL_MODULE_CACHE, EYEGLASS_FILE_CACHE_SIZE,
//	EYEGLASS_FILE_CACHE_TTL, EYEGLASS_LOG_LEVEL, EYEGLASS_LOG_FORMAT,
//	EYEGLASS_ADDR, EYEGLASS_SHUTDOWN_TIMEOUT, EYEGLASS_OTEL_ENABLED,
//	EYEGLASS_OTEL_ENDPOINT, EYEGLASS_OTEL_INSECURE
//
// Deprecated options are reported through a Deprecator, once per message.
package config
