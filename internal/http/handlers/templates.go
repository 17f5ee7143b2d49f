package handlers

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	logctx "github.com/common-repository/vatomi/internal/pkg/log"
)

var embeds = template.Must(template.New("embeds").Parse(`
{{define "alerts"}}{{range .}}<p class="vatomi-alert vatomi-alert-{{.Type}}">{{.Text}}</p>{{end}}{{end}}

{{define "login-button"}}<div class="vatomi-btn-wrapper"><a href="{{.Link}}" class="vatomi-btn {{.Class}}">Login With Envato</a></div>{{end}}

{{define "refresh"}}<form class="vatomi-btn-wrapper" method="post" action="/licenses/refresh?redirect_to={{.}}"><button class="vatomi_refresh_user_data vatomi-btn vatomi-btn-sm vatomi-btn-dark">Refresh Data</button></form>{{end}}

{{define "licenses"}}<div class="vatomi-licenses {{.Class}}">{{template "alerts" .Alerts}}
{{if not .Licenses}}<p class="vatomi-alert vatomi-alert-info">Can't find your license? Try to click on "Refresh Data" button.</p>
{{else}}<table class="vatomi-licenses">
<thead><th>Item</th><th>License</th><th>Site</th><th>Supported</th></thead>
<tbody>{{range .Licenses}}
<tr>
<td class="vatomi-licenses-item">{{.ItemName}}</td>
<td class="vatomi-licenses-license">{{.License}}:<br>{{.Code}}</td>
<td class="vatomi-licenses-site">{{if .Site}}<a class="vatomi-licenses-deactivate vatomi-btn vatomi-btn-sm vatomi-btn-dark" href="{{.DeactivateURL}}">Deactivate</a><span>{{.Site}}</span>{{else}}<span>&#8212;</span>{{end}}</td>
<td class="vatomi-licenses-supported">{{.SupportedUntilHuman}}</td>
</tr>{{end}}
</tbody></table>{{end}}
{{template "refresh" .Page}}</div>{{end}}

{{define "activation"}}<div class="vatomi-licenses {{.Class}}">{{template "alerts" .Alerts}}
{{if .Form.Licenses}}{{if .Form.ItemName}}<h3>Activate <strong>{{.Form.ItemName}}</strong></h3>{{end}}
<div>on site: <a href="{{.Form.Site}}">{{.Form.Site}}</a></div><br>
<form action="/licenses/action">
<input type="hidden" name="vatomi_action" value="activate">
<input type="hidden" name="vatomi_item_id" value="{{.Form.ItemID}}">
<input type="hidden" name="vatomi_site" value="{{.Form.Site}}">
{{if .Redirect}}<input type="hidden" name="vatomi_redirect" value="{{.Redirect}}">{{end}}
<input type="hidden" name="vatomi_token" value="{{.Token}}">
<label for="vatomi-activation-select">License:</label>
<select id="vatomi-activation-select" name="vatomi_license" required>
<option value="" selected disabled>-- Select License --</option>
{{range .Form.Licenses}}<option value="{{.Code}}">[{{.SoldAtHuman}}] {{.Code}}</option>{{end}}
</select>
<button class="vatomi-btn vatomi-btn-sm vatomi-btn-dark">Activate</button>
</form>
{{else}}<div><p class="vatomi-alert vatomi-alert-info">If you already activated license you can see it on "Licenses List" page. Can't find your license? Try to click on "Refresh Data" button.</p></div>
<a href="{{.ListURL}}" class="vatomi-btn vatomi-btn-sm vatomi-btn-dark">Licenses List</a>{{end}}
<div class="vatomi-btn-wrapper-pull-right">{{template "refresh" .Page}}</div></div>{{end}}
`))

// renderHTML рендерит фрагмент в буфер, чтобы ошибка шаблона не оставила
// половину ответа.
func renderHTML(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := embeds.ExecuteTemplate(&buf, name, data); err != nil {
		logctx.From(r.Context()).Error("embed_render_failed",
			slog.String("op", "handlers.renderHTML"),
			slog.String("template", name),
			slog.String("err", err.Error()),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
