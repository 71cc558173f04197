// Package cliflag groups pflag flag sets by section name.
package cliflag

import (
	"github.com/spf13/pflag"
)

// NamedFlagSets stores named flag sets in the order of calling FlagSet.
type NamedFlagSets struct {
	// Order is an ordered list of flag set names.
	Order []string
	// FlagSets stores the flag sets by name.
	FlagSets map[string]*pflag.FlagSet
	// NormalizeNameFunc is applied to every flag set that gets created.
	NormalizeNameFunc func(f *pflag.FlagSet, name string) pflag.NormalizedName
}

// FlagSet returns the flag set with the given name and adds it to the
// ordered name list if it is not in there yet.
func (nfs *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if nfs.FlagSets == nil {
		nfs.FlagSets = map[string]*pflag.FlagSet{}
	}
	if _, ok := nfs.FlagSets[name]; !ok {
		fs := pflag.NewFlagSet(name, pflag.ExitOnError)
		if nfs.NormalizeNameFunc != nil {
			fs.SetNormalizeFunc(nfs.NormalizeNameFunc)
		}
		nfs.FlagSets[name] = fs
		nfs.Order = append(nfs.Order, name)
	}
	return nfs.FlagSets[name]
}

// AddTo merges every named flag set into fs in order.
func (nfs *NamedFlagSets) AddTo(fs *pflag.FlagSet) {
	for _, name := range nfs.Order {
		fs.AddFlagSet(nfs.FlagSets[name])
	}
}

// WordSepNormalizeFunc changes all flags that contain "_" separators to "-".
func WordSepNormalizeFunc(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	for i := 0; i < len(name); i++ {
		if name[i] == '_' {
			b := []byte(name)
			for j := i; j < len(b); j++ {
				if b[j] == '_' {
					b[j] = '-'
				}
			}
			return pflag.NormalizedName(b)
		}
	}
	return pflag.NormalizedName(name)
}
