// Package core contains the domain events and domain errors of the school library:
// books enter the catalog, get restocked, students enroll, and copies are lent and returned.
//
// Events record what happened in the past tense (BookLentToStudent rather than "create loan").
// They are the durable form of the catalog, the loan ledger and the student directory:
// every read model is a projection of this event history.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
