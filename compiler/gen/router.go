package gen

import (
	"bytes"

	"github.com/dave/jennifer/jen"
)

const (
	pkgHTTP = "net/http"
	pkgSlog = "log/slog"
)

// buildRouter renders the route registry of the generated backend: a
// NewRouter function mounting the upload and login endpoints first and
// then one endpoint group per entity, in registry order.
func buildRouter(g *Graph) ([]byte, error) {
	var (
		pkg       = g.Package + "/internal/api"
		endpoints = pkg + "/endpoints/"
		f         = jen.NewFilePathName(pkg, "api")
	)
	f.HeaderComment(g.Header)

	f.Comment("Route is an endpoint group mounted by NewRouter.")
	f.Type().Id("Route").Struct(
		jen.Id("Prefix").String(),
		jen.Id("Name").String(),
	)
	f.Comment("Routes lists the endpoint groups mounted by the last NewRouter call, in mount order.")
	f.Var().Id("Routes").Index().Id("Route")

	body := []jen.Code{
		jen.Id("mux").Op(":=").Qual(pkgHTTP, "NewServeMux").Call(),
		jen.Id("Routes").Op("=").Nil(),
	}
	include := func(prefix, name, path string) {
		body = append(body, jen.Id("Include").Call(
			jen.Id("mux"),
			jen.Lit(prefix),
			jen.Lit(name),
			jen.Qual(path, "Router").Call(jen.Id("d")),
		))
	}
	include("/upload", "upload", endpoints+"upload")
	include("/login", "login", endpoints+"login")
	for _, t := range g.Entities() {
		include(t.Endpoint(), t.Plural(), endpoints+t.PkgName())
	}
	body = append(body, jen.Return(jen.Id("mux")))

	f.Comment("NewRouter mounts every endpoint group on a new mux.")
	f.Func().Id("NewRouter").
		Params(jen.Id("d").Op("*").Qual(pkg+"/deps", "Deps")).
		Op("*").Qual(pkgHTTP, "ServeMux").
		Block(body...)

	f.Comment("Include mounts h under prefix and records the route.")
	f.Func().Id("Include").
		Params(
			jen.Id("mux").Op("*").Qual(pkgHTTP, "ServeMux"),
			jen.List(jen.Id("prefix"), jen.Id("name")).String(),
			jen.Id("h").Qual(pkgHTTP, "Handler"),
		).
		Block(
			jen.Id("mux").Dot("Handle").Call(
				jen.Id("prefix").Op("+").Lit("/"),
				jen.Qual(pkgHTTP, "StripPrefix").Call(jen.Id("prefix"), jen.Id("h")),
			),
			jen.Id("Routes").Op("=").Append(jen.Id("Routes"), jen.Id("Route").Values(jen.Dict{
				jen.Id("Prefix"): jen.Id("prefix"),
				jen.Id("Name"):   jen.Id("name"),
			})),
			jen.Qual(pkgSlog, "Debug").Call(
				jen.Lit("route mounted"),
				jen.Lit("prefix"), jen.Id("prefix"),
				jen.Lit("name"), jen.Id("name"),
			),
		)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
