// Package models contains GORM persistence models for the ledger tables and
// the insight log. Domain records stay free of ORM tags; each model converts
// to and from its domain counterpart.
package models
