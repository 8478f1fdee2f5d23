// Package services defines the [Source] and [Destination] interfaces of a
// playlist transfer and implements them for Spotify and YouTube Music.
//
// # Spotify
//
// [SpotifyService] uses the client-credentials flow, so only public playlists
// can be read. [SpotifyService.Authenticate] fetches the app token eagerly and
// builds a [spotify.Client] around an auto-refreshing token source. Playlist
// items are paged 100 at a time; podcast episodes are skipped.
//
// # YouTube Music
//
// [YouTubeService] talks to a local FastAPI proxy wrapping ytmusicapi through
// [APIService]. The path of the browser headers file (browser.json) is sent
// with every request in the X-Auth-File header; the proxy loads it and makes
// the signed YouTube Music calls. [APIService.SetupBrowser] turns the headers
// of a copied browser request into that file's content.
//
// # Errors
//
// Failures are reported with the sentinel errors of the shared package:
//   - [shared.ErrAuthFailed]: rejected credentials, HTTP 401/403
//   - [shared.ErrPlaylistNotFound]: missing or private playlist, HTTP 404
//   - [shared.ErrRateLimited]: HTTP 429, never retried
//   - [shared.ErrServiceUnavailable]: proxy or service unreachable
//   - [shared.ErrAPIRequest]: any other failed or malformed response
package services
