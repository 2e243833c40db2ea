// Package file loads world files into script stores and persists sessions
// as JSON files on the local filesystem.
package file
