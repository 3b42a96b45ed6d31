// Package auth provides authentication and tiered authorization primitives
// (JWT issuance, social sign-in, stateful repositories, HTTP helpers) for
// alert and market-data products.
//
// Tiers and roles:
//   - Users carry a Tier (FREE, PRO) and a UserRole (USER, ADMIN) that are
//     persisted via Bun and minted into every session token. The permission
//     Evaluator answers feature, quota, and entitlement questions from those
//     two fields; admins bypass tier gating entirely.
//   - Middleware built from RouteAuthenticator enforces role and minimum-tier
//     requirements per route, so handlers only ever see sessions that already
//     cleared the gate.
//
// Social sign-in:
//   - SocialAuthenticator runs the OAuth authorization-code flow (PKCE,
//     encrypted state) against registered providers and resolves the returned
//     profile to a local user through LinkingGuard. The guard attaches known
//     provider identities, creates accounts for new verified emails, and
//     rejects link attempts that would take over an existing unverified
//     account.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the social
//     flow, and the permission layer to describe login, signup, takeover
//     rejection, tier change, and impersonation events. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue without
//     blocking authentication.
//
// Claims decoration:
//   - ClaimsDecorator is invoked before JWTs are signed. Decorators may enrich
//     extension fields such as metadata while protected claims (sub, iss,
//     aud, exp, etc.) and the tier/role/affiliate triple remain immutable.
package auth
