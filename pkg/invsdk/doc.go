/*
Package invsdk provides a client SDK for the inventory REST API.

# Overview

A Client wraps an http.Client and a TokenStore. Every request carries the
stored access token as a bearer credential. When the API answers 401 the
client exchanges the refresh token for a new access token, stores it and
replays the original request once:

	tokens := invsdk.NewMemoryTokenStore()
	client := invsdk.NewClient("https://inventory.example.com", tokens)

	if _, err := client.Login(ctx, "test.user", "password"); err != nil {
		if errors.Is(err, invsdk.ErrInvalidCredentials) {
			// wrong username or password
		}
	}

	items, err := client.ListItems(ctx)

# Token Refresh

Concurrent requests that are rejected with the same access token share one
call to the refresh endpoint. A request that is rejected after another caller
already refreshed is replayed with the new token straight away.

When the session cannot be recovered (no refresh token stored, or the refresh
call failed) both tokens are cleared and EventUnauthorized is published on the
client's Bus:

	unsubscribe := client.Events.Subscribe(func(ev invsdk.Event) {
		if ev == invsdk.EventUnauthorized {
			// send the user back to the login view
		}
	})
	defer unsubscribe()

# Errors

  - ErrInvalidCredentials: login rejected
  - ErrNoRefreshToken, ErrRefreshExpired: refresh not possible
  - *NetworkError: the exchange did not complete
  - *ValidationError: 400 with field errors, see IndexedErrors for batches
  - *APIError: any other non-2xx response

# Caching

ListItems, ListCategories and ListUsers are cached for a short TTL. Each
successful mutation invalidates the affected list exactly once, so the next
read reflects the change.
*/
package invsdk
