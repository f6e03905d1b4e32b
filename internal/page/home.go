package page

// HomeTitle is the document title of the home page
const HomeTitle = "flakestry"

// SnowflakeLogoURL is the external logo shown in the navigation bar.
// It is referenced as-is, never fetched.
const SnowflakeLogoURL = "https://raw.githubusercontent.com/NixOS/nixos-artwork/master/logo/nix-snowflake.svg"

// Page is a titled document: Body holds the top-level regions in layout order
type Page struct {
	Title string
	Body  []Node
}

// Home returns the flakestry landing page: nav, main, footer
func Home() Page {
	return Page{
		Title: HomeTitle,
		Body: []Node{
			homeNav(),
			homeMain(),
			homeFooter(),
		},
	}
}

func homeNav() Node {
	return El("nav", Class("flex items-center justify-between flex-wrap bg-white px-6 py-3 border-b"),
		El("div", Class("flex items-center flex-shrink-0 mr-6"),
			Image(SnowflakeLogoURL, "snowflake", "h-8 w-8 mr-2"),
			Link("/", "font-semibold text-xl tracking-tight", Text("Flakestry")),
		),
		El("ul", Class("flex flex-grow space-x-4"),
			El("li", nil, Link("/", "text-gray-700 hover:text-black", Text("Home"))),
			El("li", nil, Link("#", "text-gray-700 hover:text-black", Text("About"))),
		),
		El("div", Class("flex items-center space-x-2"),
			Input("text", "Search", "border rounded px-2 py-1"),
			Button("Publish", "bg-blue-500 hover:bg-blue-700 text-white font-bold py-1 px-4 rounded"),
		),
	)
}

func homeMain() Node {
	return El("main", Class("container mx-auto px-6 py-8"),
		El("h1", Class("text-3xl font-bold mb-4"), Text("Welcome to flakestry!")),
		El("p", nil, Text("here goes flakes")),
	)
}

func homeFooter() Node {
	// "<here>" is literal text, not a link
	return El("footer", Class("py-6 border-t"),
		El("p", Class("text-center"), Text("Read more about this project <here>.")),
	)
}
