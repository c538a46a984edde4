/*
Copyright 2023 The Nuclio Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package protocol holds the wire shapes exchanged between the worker and its host.

Every message crossing the stream is a StreamingMessage envelope. Its Type tag decides which payload pointer
is populated; RequestID correlates requests with their responses and is left empty on log records. Values
crossing the boundary are carried as TypedData, a tagged union whose Kind names the populated field.

The same structs are carried by every transport. Field tags are JSON tags; the msgpack transport reads them too.
*/
package protocol
