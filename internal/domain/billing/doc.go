// Package billing implements the billing-period and amount calculation
// engine for durable medical equipment (DME) rental and sale invoicing.
//
// This package is the billing-policy bounded context, responsible for:
//   - Billing-period date arithmetic (DOS from/to projection, period ends,
//     month-end clamping across 28/29/30/31-day months)
//   - Amount policy per sale/rent type and billing month (capped-rental
//     decay, rent-to-purchase conversion, maintenance cycles)
//   - Cross-frequency proration and rounding
//   - Invoice modifiers and quantity-band rules from the external pricing
//     configuration
//
// Everything here is pure and stateless over (decimal, time, enum) inputs:
// no I/O, no shared mutable state. Identical inputs produce identical
// decimal outputs, which the audit trail of financial calculations depends
// on. The package is safe for unsynchronized concurrent use.
//
// Persistence of computed results, order lifecycle, and run orchestration
// belong to external collaborators.
package billing
