package mcpserver

// DrawingFormatContract describes the persisted drawing JSON that LLM
// consumers read from get_drawing and the feedback records.
const DrawingFormatContract = `# Reviewink Drawing Format Contract

A feedback item may carry one drawing: freehand strokes made over the video
frame at the feedback timestamp. It is stored as ` + "`" + `drawing_data` + "`" + `, either
` + "`" + `null` + "`" + ` or an object of this shape:

` + "```" + `json
{
  "lines": [
    {
      "points": [{"x": 120, "y": 80}, {"x": 134.5, "y": 92}],
      "strokeWidth": 4,
      "strokeColor": "#FF3B30"
    }
  ],
  "strokeWidth": 4,
  "strokeColor": "#FF3B30",
  "canvasWidth": 1280,
  "canvasHeight": 720
}
` + "```" + `

## Rules

1. **` + "`" + `lines` + "`" + `** is ordered oldest first. Later lines paint over earlier ones.
2. **Points** are in the native pixel space of the surface the stroke was drawn
   on, with the origin at the top-left corner. Point order is drawing order.
3. A line with fewer than two points is kept but never painted.
4. **` + "`" + `strokeWidth` + "`" + `/` + "`" + `strokeColor` + "`" + `** on a line are the style it was drawn with.
   The top-level pair is the tool to resume editing with.
5. **Colours** are ` + "`" + `#RGB` + "`" + `, ` + "`" + `#RRGGBB` + "`" + `, ` + "`" + `#RRGGBBAA` + "`" + ` or a basic CSS keyword.
6. **` + "`" + `canvasWidth` + "`" + `/` + "`" + `canvasHeight` + "`" + `** are optional. When present, renderers
   scale the points from that size to the output size.
7. An empty drawing is stored as ` + "`" + `null` + "`" + `, never as an empty ` + "`" + `lines` + "`" + ` array.

## Versioning

` + "`" + `get_drawing` + "`" + ` returns a ` + "`" + `checksum` + "`" + `. Pass it to ` + "`" + `clear_drawing` + "`" + ` to refuse the
change when somebody edited the drawing in the meantime.
`
