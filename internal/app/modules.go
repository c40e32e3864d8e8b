package app

import (
	"github.com/specialistvlad/opgrid/internal/registry"
	"github.com/specialistvlad/opgrid/modules/aggregator"
	"github.com/specialistvlad/opgrid/modules/bounds"
	"github.com/specialistvlad/opgrid/modules/chainrule"
	"github.com/specialistvlad/opgrid/modules/harvest"
	"github.com/specialistvlad/opgrid/modules/output"
	"github.com/specialistvlad/opgrid/modules/statistics"
	"github.com/specialistvlad/opgrid/modules/systemcall"
	"github.com/specialistvlad/opgrid/modules/volume"
)

// coreModules is the definitive list of all modules that are compiled into
// the opgrid binary.
var coreModules = []registry.Module{
	&aggregator.Module{},
	&bounds.Module{},
	&chainrule.Module{},
	&harvest.Module{},
	&output.Module{},
	&statistics.Module{},
	&systemcall.Module{},
	&volume.Module{},
}
