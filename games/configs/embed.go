// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package configs

import (
	"embed"
)

// FS provides the embedded game setting YAMLs.
//
//go:embed *.yaml
var FS embed.FS

const (
	// Reference 參考輪帶
	Reference = "buffalo_orbs.yaml"
	// Rich ORB 疊放版本，Hold&Spin 可達
	Rich = "buffalo_orbs_rich.yaml"
)
