package scaffold

import "fmt"

// templateFiles returns the boilerplate file set for a new project
func templateFiles(name, description string) map[string]string {
	return map[string]string{
		"README.md": fmt.Sprintf("# %s\n\n%s\n\nGenerated starter project.\n\n## Run\n\n```\nnpm install\nnpm start\n```\n", name, description),
		"package.json": fmt.Sprintf(`{
  "name": "%s",
  "version": "0.1.0",
  "scripts": {
    "start": "node server.js"
  },
  "dependencies": {
    "express": "^4.19.0"
  }
}
`, name),
		"server.js": `const express = require('express');
const path = require('path');

const app = express();
const port = process.env.PORT || 3000;

app.use(express.static(path.join(__dirname, 'public')));
app.use(express.json());

app.get('/api/health', (req, res) => {
  res.json({ status: 'ok' });
});

app.listen(port, () => {
  console.log('listening on http://localhost:' + port);
});
`,
		"public/index.html": fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
  <link rel="stylesheet" href="styles.css">
</head>
<body>
  <main>
    <h1>%s</h1>
    <p>Your app starts here.</p>
  </main>
  <script src="app.js"></script>
</body>
</html>
`, name, name),
		"public/styles.css": `* {
  margin: 0;
  padding: 0;
  box-sizing: border-box;
}

body {
  font-family: system-ui, sans-serif;
  display: flex;
  min-height: 100vh;
  align-items: center;
  justify-content: center;
  background: #f6f7f9;
}

main {
  text-align: center;
}
`,
		"public/app.js": `fetch('/api/health')
  .then((res) => res.json())
  .then((data) => console.log('backend:', data.status));
`,
	}
}
