// Package authgate gates protected application sections behind a remote
// identity provider and a reconciled per-user profile record.
//
// Auth state:
//   - AuthState holds the current Identity and a readiness flag. It attaches
//     to the provider's change stream at most once and flips ready on the
//     first definitive answer (identity, no identity, or provider error).
//   - WaitUntilReady blocks on a broadcast channel; every waiter is released
//     by the same transition.
//
// Profile reconciliation:
//   - Reconciler.EnsureProfile makes sure a ProfileRecord exists for the
//     identity, corrects drifted fields with a single partial update and
//     derives the Role. The admin allow-list seeds the role at creation; the
//     RolePrecedence option decides who wins afterwards.
//   - ProfileState always ends ready, even when the store fails.
//
// Route guard:
//   - RouteGuard combines both to decide whether a navigation proceeds or is
//     redirected to the login page or the non-admin landing page.
//
// Session owns one AuthState and one ProfileState so server processes can
// scope auth to a browser session instead of the whole process.
package authgate
