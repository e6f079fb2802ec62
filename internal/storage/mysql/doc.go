// Package mysql provides a MySQL backed session message log. It keeps the
// schema current through embedded SQL migrations and guarantees per session
// sequence monotonicity with a short row locking transaction on append.
package mysql
