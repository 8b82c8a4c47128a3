// Package optim calibrates run parameters by searching for the
// combination whose ensemble statistics best match a target.
package optim
