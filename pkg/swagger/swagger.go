package swagger

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	title   = "Where2Run API"
	docPath = "/swagger/openapi.yaml"
)

//go:embed openapi.yaml
var document []byte

var uiTemplate = template.Must(template.New("ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}} - Swagger UI</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
  <style>html{box-sizing:border-box;overflow-y:scroll}*,*:before,*:after{box-sizing:inherit}body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '{{.DocPath}}',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
      deepLinking: true,
    });
  </script>
</body>
</html>`))

// RegisterRoutes serves the OpenAPI document at /swagger/openapi.yaml and
// the Swagger UI at every other /swagger path.
func RegisterRoutes(r gin.IRoutes) {
	page := renderUI()
	r.GET("/swagger/*path", func(c *gin.Context) {
		if strings.HasSuffix(c.Param("path"), "openapi.yaml") {
			c.Data(http.StatusOK, "application/yaml", document)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})
}

func renderUI() []byte {
	var buf bytes.Buffer
	_ = uiTemplate.Execute(&buf, struct{ Title, DocPath string }{title, docPath})
	return buf.Bytes()
}
