// Package portal provides the domain types, repository interfaces and errors
// of the folio application.
//
// # Data Models
//
//   - User: an account with a login, a role (USER or ADMIN) and a language
//   - Portfolio: a named collection owned by exactly one user
//
// # Ownership
//
// PortfolioRepository takes the authenticated *User on every call. Lookups and
// mutations are always scoped by the (id, user) pair, so a portfolio belonging
// to someone else behaves exactly like a missing one:
//
//	p, err := portfolios.FindByID(ctx, id, user)
//	if err != nil {
//		return err
//	}
//	if p == nil {
//		// absent or owned by another user
//	}
//
//	if _, err := portfolios.Update(ctx, p, user); portal.IsNotFoundError(err) {
//		// zero rows matched (id, user)
//	}
//
// # Error Handling
//
// PortalError carries a type, a stable code and a message. Handlers map the
// types to HTTP statuses: not_found 404, conflict 409, validation 400,
// unauthorized 401, permission 403, everything else 500.
package portal
