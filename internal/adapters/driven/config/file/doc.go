// Package file keeps settings and prompt templates on disk, under
// ~/.topicnet unless a directory is given. Settings are TOML; prompts are
// one text file per template that users may edit.
package file
