// Package preload builds the prefetch hints injected into HTML pages so
// that browsers warm up the other mounted applications.
//
// Chromium based browsers receive a Speculation Rules block in the
// document head. Other browsers receive a deferred script tag that
// loads a small router-served script issuing same-origin fetches once
// the DOM is ready.
package preload
