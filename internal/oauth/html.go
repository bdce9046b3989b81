package oauth

// relayHTML runs inside the secondary context when a provider delivers its
// result in the URL fragment. Fragments never reach an HTTP server, so the
// page reposts location.hash as query parameters and reloads itself.
const relayHTML = `<!DOCTYPE html>
<html>
<head><title>Completing sign-in...</title></head>
<body>
<p>Completing sign-in...</p>
<script>
(function () {
  var hash = window.location.hash.substring(1);
  window.location.replace(window.location.pathname + "?" + (hash || "relay=done"));
})();
</script>
</body>
</html>`

const successHTML = `<!DOCTYPE html>
<html>
<head><title>Sign-in complete</title></head>
<body>
<h2>Sign-in complete</h2>
<p>You can close this window and return to the terminal.</p>
<script>setTimeout(function () { window.close(); }, 500);</script>
</body>
</html>`

const failureHTML = `<!DOCTYPE html>
<html>
<head><title>Sign-in failed</title></head>
<body>
<h2>Sign-in failed</h2>
<p>{{REASON}}</p>
<p>You can close this window and try again from the terminal.</p>
</body>
</html>`
