// Package config loads printgate configuration from local and global YAML
// files. It is internal; CLI code applies flag > local > global precedence and
// maps the result onto checks and the batch runner.
package config
