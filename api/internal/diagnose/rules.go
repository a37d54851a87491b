// Package diagnose maps an upload's filename to a known-problem annotation.
// The support team keeps a catalogue of staged failure photos whose filenames
// encode the scenario; matching is a case-insensitive substring check and is
// entirely independent of the image content.
package diagnose

import "strings"

// Annotation is the problem/dispatch overlay merged into the response.
type Annotation struct {
	ProblemDetected    bool
	ProblemDescription string
	DispatchNote       string
}

type rule struct {
	substrings []string
	annotation Annotation
	// standalone rules are evaluated on their own; the rest form one
	// exclusive first-match chain.
	standalone bool
}

// The table is ordered data so the evaluation order stays auditable. The two
// standalone entries sit outside the exclusive chain: a filename matching a
// standalone rule and a chain rule ends up with whichever branch runs last.
// That precedence is inherited behavior and is pinned by tests; do not
// reorder or fold the standalone rules into the chain.
var rules = []rule{
	{
		substrings: []string{"broken_cable1"},
		annotation: Annotation{
			ProblemDetected:    true,
			ProblemDescription: "Cable appears broken",
			DispatchNote:       "Please replace the broken cable and resume self-installation.",
		},
		standalone: true,
	},
	{
		substrings: []string{"power_strip_off"},
		annotation: Annotation{
			ProblemDetected:    true,
			ProblemDescription: "Power strip is turned off",
			DispatchNote:       "Ask the user to turn on the power strip and retry; dispatch not required unless issue persists.",
		},
		standalone: true,
	},
	{
		substrings: []string{"router_with_redlight_no_internet", "router_red_light"},
		annotation: Annotation{
			ProblemDetected:    true,
			ProblemDescription: "Red internet light, unable to connect to internet",
			DispatchNote:       "Trouble ticket TT12345 has been created; a technician will contact the customer to restore the internet connection.",
		},
	},
	{
		substrings: []string{"router_no_lights_not_connected_to_power", "router_no_power"},
		annotation: Annotation{
			ProblemDetected:    true,
			ProblemDescription: "Power Supply Not Connected - No Lights",
			DispatchNote:       "Please connect a power cord and resume self-installation.",
		},
	},
	{
		substrings: []string{"dead_router"},
		annotation: Annotation{
			ProblemDetected:    true,
			ProblemDescription: "Router appears to be without power (dead)",
			DispatchNote:       "Schedule a technician visit to replace or repair the router.",
		},
	},
	{
		substrings: []string{"over_loaded_powerstrip", "overloaded_powerstrip"},
		annotation: Annotation{
			ProblemDetected:    true,
			ProblemDescription: "Power strip appears overloaded",
			DispatchNote:       "Please move the router power adapter to a wall outlet and remove extra devices from the power strip.",
		},
	},
	{
		substrings: []string{"router_cable_chewed_to_powerstrip", "cable_chewed"},
		annotation: Annotation{
			ProblemDetected:    true,
			ProblemDescription: "Router power/data cable appears chewed or damaged",
			DispatchNote:       "Please replace the damaged cable; a technician visit will be scheduled if the replacement does not restore service.",
		},
	},
	{
		substrings: []string{"router_not_connected_to_modem", "router_not_connected"},
		annotation: Annotation{
			ProblemDetected:    true,
			ProblemDescription: "Router is not connected to modem",
			DispatchNote:       "Please connect the router to the modem with the supplied Ethernet cable and resume self-installation.",
		},
	},
	{
		// Explicit negative case: a healthy router photo clears any
		// earlier standalone match.
		substrings: []string{"router_with_green_light", "router_green_light"},
		annotation: Annotation{},
	},
	{
		substrings: []string{"ont_with_crackedcasing", "ont_cracked"},
		annotation: Annotation{
			ProblemDetected:    true,
			ProblemDescription: "ONT (Optical Network Terminal) has a cracked casing",
			DispatchNote:       "Schedule a technician visit to replace the ONT.",
		},
	},
}

// Evaluate is total over all filenames, including the empty string.
func Evaluate(filename string) Annotation {
	name := strings.ToLower(filename)

	var out Annotation
	chainDone := false
	for _, r := range rules {
		if !r.standalone && chainDone {
			continue
		}
		if !matches(name, r.substrings) {
			continue
		}
		out = r.annotation
		if !r.standalone {
			chainDone = true
		}
	}
	return out
}

func matches(name string, substrings []string) bool {
	for _, s := range substrings {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}
